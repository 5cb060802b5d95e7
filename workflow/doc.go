// Package workflow 把研究团队编排成七个阶段的流水线。
// 阶段产出逐级累积进后续任务的上下文, 方法论与数据分析
// 在文献综述完成后并行执行, 阶段失败即中止整条流水线。
package workflow
