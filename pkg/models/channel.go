package models

import "fmt"

// ChannelType identifies an outreach delivery channel.
type ChannelType string

const (
	ChannelSMS   ChannelType = "sms"
	ChannelVoice ChannelType = "voice"
)

// channelOrder is the declared execution order for multi-channel campaigns.
// SMS always runs before voice; this is policy, not derived from input order.
var channelOrder = []ChannelType{ChannelSMS, ChannelVoice}

// ChannelSet is the set of channels a campaign is configured to use.
type ChannelSet []ChannelType

func NewChannelSet(channels ...ChannelType) ChannelSet {
	return ChannelSet(channels)
}

func (s ChannelSet) Has(channel ChannelType) bool {
	for _, c := range s {
		if c == channel {
			return true
		}
	}

	return false
}

// Ordered returns the configured channels in their declared execution order,
// dropping duplicates.
func (s ChannelSet) Ordered() ChannelSet {
	ordered := make(ChannelSet, 0, len(s))

	for _, c := range channelOrder {
		if s.Has(c) {
			ordered = append(ordered, c)
		}
	}

	return ordered
}

func (s ChannelSet) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("channel set must not be empty")
	}

	for _, c := range s {
		switch c {
		case ChannelSMS, ChannelVoice:
		default:
			return fmt.Errorf("unknown channel type %q", c)
		}
	}

	return nil
}
