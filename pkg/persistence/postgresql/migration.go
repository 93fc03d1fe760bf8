package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			-- Create campaigns table
			CREATE TABLE campaigns (
				id UUID PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				status VARCHAR(50) NOT NULL,
				channels JSONB NOT NULL,
				roles JSONB,
				graph JSONB,
				schedule VARCHAR(255),
				stats JSONB NOT NULL DEFAULT '{}',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
				started_at TIMESTAMP WITH TIME ZONE,
				completed_at TIMESTAMP WITH TIME ZONE,
				deleted_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX idx_campaigns_status ON campaigns(status);
			CREATE INDEX idx_campaigns_created_at ON campaigns(created_at);
			CREATE INDEX idx_campaigns_deleted_at ON campaigns(deleted_at);

			-- Create leads table
			CREATE TABLE leads (
				id UUID PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				phone VARCHAR(50) NOT NULL,
				email VARCHAR(255),
				company VARCHAR(255),
				notes TEXT,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
				deleted_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX idx_leads_created_at ON leads(created_at);
			CREATE INDEX idx_leads_deleted_at ON leads(deleted_at);

			-- Create campaign_leads table (one row per campaign membership)
			CREATE TABLE campaign_leads (
				id UUID PRIMARY KEY,
				campaign_id UUID NOT NULL REFERENCES campaigns(id) ON DELETE CASCADE,
				lead_id UUID NOT NULL REFERENCES leads(id) ON DELETE CASCADE,
				status VARCHAR(50) NOT NULL DEFAULT 'pending',
				sent BOOLEAN NOT NULL DEFAULT FALSE,
				message TEXT,
				delivery_response VARCHAR(255),
				voice_call_made BOOLEAN NOT NULL DEFAULT FALSE,
				voice_call_id VARCHAR(255),
				failure_kind VARCHAR(50),
				error_message TEXT,
				trace_id VARCHAR(255),
				cost DOUBLE PRECISION NOT NULL DEFAULT 0,
				processed_at TIMESTAMP WITH TIME ZONE,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
				UNIQUE (campaign_id, lead_id)
			);

			CREATE INDEX idx_campaign_leads_campaign_id ON campaign_leads(campaign_id);
			CREATE INDEX idx_campaign_leads_status ON campaign_leads(campaign_id, status);
		`,
		2: `
			-- Migration 2: persisted transcripts and engine logs

			CREATE TABLE conversation_messages (
				id UUID PRIMARY KEY,
				seq BIGSERIAL,
				campaign_lead_id UUID NOT NULL REFERENCES campaign_leads(id) ON DELETE CASCADE,
				role VARCHAR(50) NOT NULL,
				agent_role VARCHAR(100),
				content TEXT NOT NULL,
				metadata JSONB,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE INDEX idx_conversation_messages_campaign_lead ON conversation_messages(campaign_lead_id, seq);

			CREATE TABLE processing_logs (
				id UUID PRIMARY KEY,
				seq BIGSERIAL,
				campaign_lead_id UUID NOT NULL REFERENCES campaign_leads(id) ON DELETE CASCADE,
				level VARCHAR(10) NOT NULL,
				node_name VARCHAR(100),
				message TEXT NOT NULL,
				metadata JSONB,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE INDEX idx_processing_logs_campaign_lead ON processing_logs(campaign_lead_id, seq);
		`,
	}
}
