package engine

import "github.com/getleadpipe/leadpipe/pkg/models"

// FixedPipeline builds the single-role shape: validate, generate, then the
// configured channels in their declared order (sms before voice), then
// finalize. Validation failure short-circuits straight to finalize.
func FixedPipeline(channels models.ChannelSet) (*GraphSpec, error) {
	if err := channels.Validate(); err != nil {
		return nil, newGraphConfigError(err.Error())
	}

	sms := channels.Has(models.ChannelSMS)
	voice := channels.Has(models.ChannelVoice)

	nodes := []NodeSpec{
		{ID: string(NodeValidate), Type: NodeValidate},
		{ID: string(NodeGenerate), Type: NodeGenerate},
	}
	edges := []EdgeSpec{
		{Source: string(NodeValidate), Target: string(NodeGenerate), When: ConditionValidated},
		{Source: string(NodeValidate), Target: string(NodeFinalize)},
	}

	if sms {
		nodes = append(nodes, NodeSpec{ID: string(NodeDeliver), Type: NodeDeliver})
		edges = append(edges, EdgeSpec{Source: string(NodeGenerate), Target: string(NodeDeliver), When: ConditionSMSEnabled})
	}

	if voice {
		nodes = append(nodes, NodeSpec{ID: string(NodeVoice), Type: NodeVoice})

		if sms {
			edges = append(edges, EdgeSpec{Source: string(NodeDeliver), Target: string(NodeVoice), When: ConditionVoiceEnabled})
			edges = append(edges, EdgeSpec{Source: string(NodeDeliver), Target: string(NodeFinalize)})
		}

		edges = append(edges, EdgeSpec{Source: string(NodeGenerate), Target: string(NodeVoice), When: ConditionVoiceEnabled})
		edges = append(edges, EdgeSpec{Source: string(NodeVoice), Target: string(NodeFinalize)})
	} else if sms {
		edges = append(edges, EdgeSpec{Source: string(NodeDeliver), Target: string(NodeFinalize)})
	}

	nodes = append(nodes, NodeSpec{ID: string(NodeFinalize), Type: NodeFinalize})
	edges = append(edges, EdgeSpec{Source: string(NodeGenerate), Target: string(NodeFinalize)})

	return NewGraphSpec("fixed", string(NodeValidate), nodes, edges)
}

// DualRolePipeline builds the creative/deterministic shape: the creative role
// generates, the hand-off transfers the draft exactly once, the deterministic
// role executes the channels. Requires the sms channel, which carries the
// hand-off draft.
func DualRolePipeline(channels models.ChannelSet) (*GraphSpec, error) {
	if err := channels.Validate(); err != nil {
		return nil, newGraphConfigError(err.Error())
	}

	if !channels.Has(models.ChannelSMS) {
		return nil, newGraphConfigError("dual-role shape requires the sms channel")
	}

	voice := channels.Has(models.ChannelVoice)

	nodes := []NodeSpec{
		{ID: string(NodeValidate), Type: NodeValidate},
		{ID: string(NodeGenerate), Type: NodeGenerate},
		{ID: string(NodeHandoff), Type: NodeHandoff},
		{ID: string(NodeDeliver), Type: NodeDeliver},
	}
	edges := []EdgeSpec{
		{Source: string(NodeValidate), Target: string(NodeGenerate), When: ConditionValidated},
		{Source: string(NodeValidate), Target: string(NodeFinalize)},
		{Source: string(NodeGenerate), Target: string(NodeHandoff)},
		{Source: string(NodeHandoff), Target: string(NodeDeliver), When: ConditionGenerated},
		{Source: string(NodeHandoff), Target: string(NodeFinalize)},
	}

	if voice {
		nodes = append(nodes, NodeSpec{ID: string(NodeVoice), Type: NodeVoice})
		edges = append(edges,
			EdgeSpec{Source: string(NodeDeliver), Target: string(NodeVoice), When: ConditionVoiceEnabled},
			EdgeSpec{Source: string(NodeDeliver), Target: string(NodeFinalize)},
			EdgeSpec{Source: string(NodeVoice), Target: string(NodeFinalize)},
		)
	} else {
		edges = append(edges, EdgeSpec{Source: string(NodeDeliver), Target: string(NodeFinalize)})
	}

	nodes = append(nodes, NodeSpec{ID: string(NodeFinalize), Type: NodeFinalize})

	return NewGraphSpec("dual-role", string(NodeValidate), nodes, edges)
}
