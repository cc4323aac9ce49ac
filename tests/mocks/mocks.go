// Package mocks provides testify mocks for the engine's collaborators.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"knowledge-engine/application/ports"
	"knowledge-engine/domain/knowledge"
)

// MockStore is a testify mock of ports.Store
type MockStore struct {
	mock.Mock
}

func (m *MockStore) GetNodes(ctx context.Context, projectID string) ([]*knowledge.KnowledgeNode, error) {
	args := m.Called(ctx, projectID)
	if nodes := args.Get(0); nodes != nil {
		return nodes.([]*knowledge.KnowledgeNode), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStore) CreateNode(ctx context.Context, node *knowledge.KnowledgeNode) (*knowledge.KnowledgeNode, error) {
	args := m.Called(ctx, node)
	if stored := args.Get(0); stored != nil {
		return stored.(*knowledge.KnowledgeNode), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStore) UpdateNode(ctx context.Context, id string, update ports.NodeUpdate) (*knowledge.KnowledgeNode, error) {
	args := m.Called(ctx, id, update)
	if stored := args.Get(0); stored != nil {
		return stored.(*knowledge.KnowledgeNode), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockUsageSignal is a testify mock of ports.UsageSignal
type MockUsageSignal struct {
	mock.Mock
}

func (m *MockUsageSignal) Frequency(ctx context.Context, projectID, fromNodeID, toNodeID string) (ports.UsageStat, error) {
	args := m.Called(ctx, projectID, fromNodeID, toNodeID)
	return args.Get(0).(ports.UsageStat), args.Error(1)
}

// FixedUsage is a UsageSignal returning the same frequency for every edge.
// Tests use it when mock expectations per edge would be noise.
type FixedUsage struct {
	Value float64
}

func (f FixedUsage) Frequency(ctx context.Context, projectID, fromNodeID, toNodeID string) (ports.UsageStat, error) {
	return ports.UsageStat{Frequency: f.Value}, nil
}
