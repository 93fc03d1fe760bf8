package engine

import "github.com/getleadpipe/leadpipe/pkg/models"

// Edge condition tags. Conditions are observations of the execution state;
// they never mutate it. An empty tag is the default/fallback edge.
const (
	ConditionValidated    = "validated"
	ConditionInvalid      = "invalid"
	ConditionGenerated    = "generated"
	ConditionNotGenerated = "not_generated"
	ConditionSent         = "sent"
	ConditionNotSent      = "not_sent"
	ConditionSMSEnabled   = "sms_enabled"
	ConditionVoiceEnabled = "voice_enabled"
)

var conditions = map[string]func(*models.ExecutionState) bool{
	ConditionValidated: func(s *models.ExecutionState) bool {
		return s.ValidationPassed()
	},
	ConditionInvalid: func(s *models.ExecutionState) bool {
		return !s.ValidationPassed()
	},
	ConditionGenerated: func(s *models.ExecutionState) bool {
		return s.Message() != ""
	},
	ConditionNotGenerated: func(s *models.ExecutionState) bool {
		return s.Message() == ""
	},
	ConditionSent: func(s *models.ExecutionState) bool {
		return s.Sent()
	},
	ConditionNotSent: func(s *models.ExecutionState) bool {
		return !s.Sent()
	},
	ConditionSMSEnabled: func(s *models.ExecutionState) bool {
		return s.Channels.Has(models.ChannelSMS)
	},
	ConditionVoiceEnabled: func(s *models.ExecutionState) bool {
		return s.Channels.Has(models.ChannelVoice)
	},
}

// KnownCondition reports whether tag is a recognized edge condition. The
// empty tag marks a default edge and is always known.
func KnownCondition(tag string) bool {
	if tag == "" {
		return true
	}

	_, ok := conditions[tag]

	return ok
}

func evalCondition(tag string, state *models.ExecutionState) bool {
	if tag == "" {
		return true
	}

	eval, ok := conditions[tag]
	if !ok {
		return false
	}

	return eval(state)
}
