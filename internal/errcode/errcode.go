package errcode

// 错误码约定：
// - 0：无错误
// - 4xxx：业务可恢复/告警类错误（例如截图期间文档已更新，结果被丢弃）
// - 5xxx：系统错误（需要中断流程）
const (
	OK            = 0
	Superseded    = 4009
	SystemError   = 5000
	BrowserFailed = 5001
	StorageFailed = 5002
)
