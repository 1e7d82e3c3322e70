package nats

// NATS Subject 常量定义
const (
	// SubjectGameCommand Access -> Switcher 游戏命令（request/reply）
	SubjectGameCommand = "switcher.game.command"

	// SubjectGameEventsPrefix Switcher -> 订阅者 游戏事件前缀
	// 完整格式: switcher.game.{game_id}.events
	SubjectGameEventsPrefix = "switcher.game."
	SubjectGameEventsSuffix = ".events"

	// QueueGroupSwitcher Switcher 服务队列组名称
	QueueGroupSwitcher = "switcher-group"

	// HeaderMsgID 事件去重用的消息ID头
	HeaderMsgID = "Nats-Msg-Id"
)

// BuildGameEventsSubject 构建游戏事件 Subject
func BuildGameEventsSubject(gameID string) string {
	return SubjectGameEventsPrefix + gameID + SubjectGameEventsSuffix
}
