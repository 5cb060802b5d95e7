// Package crew 实现研究团队的组织与调度：
// 角色定义（八个研究角色及其 provider/温度/工具配置）、
// ResearchAgent（把角色绑定到 LLM provider 与工具执行器）、
// 以及顺序与层级两种任务调度方式。
//
// 层级模式下由允许委派的协调者逐项委派任务,
// 协商失败或被拒时回退到协调者自己执行。
package crew
