package automod

import (
	"github.com/haven-social/sentinel/automod/engine"
)

type Engine = engine.Engine
type RuleSet = engine.RuleSet

type BaseContext = engine.BaseContext
type AccountContext = engine.AccountContext
type MessageContext = engine.MessageContext
type JoinContext = engine.JoinContext

type MessageRuleFunc = engine.MessageRuleFunc
type JoinRuleFunc = engine.JoinRuleFunc

type Notifier = engine.Notifier
type PlatformNotifier = engine.PlatformNotifier
type SlackNotifier = engine.SlackNotifier

type Action = engine.Action
type ActionKind = engine.ActionKind
type ExecStatus = engine.ExecStatus
type GuardResult = engine.GuardResult

var (
	ActionDelete   = engine.ActionDelete
	ActionRestrict = engine.ActionRestrict
	ActionKick     = engine.ActionKick
	ActionBan      = engine.ActionBan

	ExecApplied = engine.ExecApplied
	ExecSkipped = engine.ExecSkipped
	ExecFailed  = engine.ExecFailed

	NewPlatformNotifier = engine.NewPlatformNotifier
	EngineTestFixture   = engine.EngineTestFixture
)
