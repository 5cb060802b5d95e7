// papercrew 是多智能体研究论文流水线的服务入口,
// 提供 serve/version/health 子命令。
package main
