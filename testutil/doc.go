/*
Package testutil 提供 PaperCrew 测试的共享工具和辅助函数。

# 概述

testutil 包为整个项目的单元测试提供统一的辅助能力，
避免各包重复实现相似的测试基础设施。

# 核心能力

  - 上下文辅助: TestContext / TestContextWithTimeout / CancelledContext，
    自动注册 Cleanup 防止泄漏
  - 异步断言: AssertEventuallyTrue / WaitFor / WaitForChannel，
    支持超时轮询等待条件满足
  - 数据工具: MustJSON / MustParseJSON，简化测试数据构造
  - 流式辅助: CollectStreamChunks / CollectStreamContent /
    SendChunksToChannel，用于 LLM 流式响应测试

# 子包

  - testutil/mocks: Mock 实现，包括 MockProvider（LLM Provider），
    支持 Builder 模式与错误注入

# 使用示例

	ctx := testutil.TestContext(t)
	provider := mocks.NewMockProvider().WithResponse("hello")
	resp, err := provider.Completion(ctx, req)
	require.NoError(t, err)
*/
package testutil
