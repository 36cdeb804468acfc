package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE stock_reservations (
				id UUID PRIMARY KEY,
				order_id VARCHAR(255) NOT NULL,
				items JSONB NOT NULL,
				status VARCHAR(50) NOT NULL CHECK (status IN ('active', 'fulfilled', 'released', 'expired')),
				expires_at TIMESTAMP WITH TIME ZONE NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_stock_reservations_order_id ON stock_reservations(order_id);
			CREATE INDEX idx_stock_reservations_status_expires_at ON stock_reservations(status, expires_at);

			CREATE TABLE workflow_templates (
				id UUID PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				entity_type VARCHAR(100) NOT NULL,
				version INTEGER NOT NULL,
				steps JSONB NOT NULL,
				is_active BOOLEAN NOT NULL DEFAULT FALSE,
				created_by VARCHAR(255),
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
				UNIQUE (name, entity_type, version)
			);

			CREATE INDEX idx_workflow_templates_entity_type ON workflow_templates(entity_type);
			CREATE INDEX idx_workflow_templates_is_active ON workflow_templates(is_active);

			CREATE TABLE workflow_instances (
				id UUID PRIMARY KEY,
				template_id UUID NOT NULL REFERENCES workflow_templates(id),
				entity_type VARCHAR(100) NOT NULL,
				entity_id VARCHAR(255) NOT NULL,
				steps JSONB NOT NULL,
				current_step_id VARCHAR(255) NOT NULL,
				status VARCHAR(50) NOT NULL CHECK (status IN ('pending', 'in_progress', 'approved', 'rejected', 'cancelled', 'escalated')),
				created_by VARCHAR(255),
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
				completed_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX idx_workflow_instances_entity ON workflow_instances(entity_type, entity_id);
			CREATE INDEX idx_workflow_instances_status ON workflow_instances(status);
			CREATE INDEX idx_workflow_instances_template_id ON workflow_instances(template_id);

			CREATE TABLE workflow_delegations (
				id UUID PRIMARY KEY,
				instance_id UUID NOT NULL REFERENCES workflow_instances(id),
				step_id VARCHAR(255) NOT NULL,
				from_user_id VARCHAR(255) NOT NULL,
				to_user_id VARCHAR(255) NOT NULL,
				reason TEXT,
				expires_at TIMESTAMP WITH TIME ZONE NOT NULL,
				is_active BOOLEAN NOT NULL DEFAULT TRUE,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_workflow_delegations_step ON workflow_delegations(instance_id, step_id, is_active);
			CREATE INDEX idx_workflow_delegations_expires_at ON workflow_delegations(expires_at);

			CREATE TABLE workflow_analytics (
				id UUID PRIMARY KEY,
				instance_id UUID NOT NULL,
				template_id UUID NOT NULL,
				entity_type VARCHAR(100) NOT NULL,
				outcome VARCHAR(50) NOT NULL CHECK (outcome IN ('approved', 'rejected', 'cancelled', 'escalated')),
				duration_ms BIGINT NOT NULL,
				steps_total INTEGER NOT NULL,
				steps_approved INTEGER NOT NULL,
				recorded_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_workflow_analytics_template_id ON workflow_analytics(template_id);
			CREATE INDEX idx_workflow_analytics_recorded_at ON workflow_analytics(recorded_at);
		`,
	}
}
