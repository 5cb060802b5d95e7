// Package run 跟踪研究流水线运行的生命周期：
// 状态、进度、阶段事件历史与订阅, 以及最终报告和下载包。
// 仅提供内存存储, 进程重启后运行记录不保留。
package run
