// Package queue defines the collection task messages and how they travel
// over Kafka.
package queue

import (
	"errors"
	"fmt"
)

const (
	TypeCollectBoutiqueData = "collect_boutique_data"
	TypeCollectOrdersChunk  = "collect_orders_chunk"
	TypeSyncOrders          = "sync_orders"
	TypeSyncStocks          = "sync_stocks"
)

var (
	ErrUnknownMessage = errors.New("unknown message type")
	ErrInvalidMessage = errors.New("invalid message")
)

// Message is a collection task.
type Message interface {
	Type() string
	// Key routes every task of one boutique to the same partition.
	Key() string
	Validate() error
}

// CollectBoutiqueDataMessage collects stocks and/or orders of one boutique.
// SyncJobID is set when the trigger created a job to report progress on.
type CollectBoutiqueDataMessage struct {
	BoutiqueID    string `json:"boutique_id"`
	CollectStocks bool   `json:"collect_stocks"`
	CollectOrders bool   `json:"collect_orders"`
	OrdersDays    int    `json:"orders_days"`
	SyncJobID     string `json:"sync_job_id,omitempty"`
}

func (m CollectBoutiqueDataMessage) Type() string { return TypeCollectBoutiqueData }
func (m CollectBoutiqueDataMessage) Key() string  { return m.BoutiqueID }

func (m CollectBoutiqueDataMessage) Validate() error {
	if m.BoutiqueID == "" {
		return fmt.Errorf("%w: boutique_id is required", ErrInvalidMessage)
	}
	if m.OrdersDays < 0 {
		return fmt.Errorf("%w: orders_days must not be negative", ErrInvalidMessage)
	}
	if !m.CollectStocks && !m.CollectOrders {
		return fmt.Errorf("%w: nothing to collect", ErrInvalidMessage)
	}
	return nil
}

// CollectOrdersChunkMessage backfills the orders with ids in [StartID, EndID].
type CollectOrdersChunkMessage struct {
	BoutiqueID string `json:"boutique_id"`
	StartID    int    `json:"start_id"`
	EndID      int    `json:"end_id"`
	SyncJobID  string `json:"sync_job_id,omitempty"`
}

func (m CollectOrdersChunkMessage) Type() string { return TypeCollectOrdersChunk }
func (m CollectOrdersChunkMessage) Key() string  { return m.BoutiqueID }

func (m CollectOrdersChunkMessage) Validate() error {
	if m.BoutiqueID == "" {
		return fmt.Errorf("%w: boutique_id is required", ErrInvalidMessage)
	}
	if m.StartID < 1 || m.EndID < m.StartID {
		return fmt.Errorf("%w: bad id range [%d, %d]", ErrInvalidMessage, m.StartID, m.EndID)
	}
	return nil
}

// SyncOrdersMessage syncs the last Days days of orders of one boutique, or of
// every boutique when BoutiqueID is empty.
type SyncOrdersMessage struct {
	BoutiqueID string `json:"boutique_id,omitempty"`
	Days       int    `json:"days"`
}

func (m SyncOrdersMessage) Type() string { return TypeSyncOrders }
func (m SyncOrdersMessage) Key() string  { return keyOrAll(m.BoutiqueID) }

func (m SyncOrdersMessage) Validate() error {
	if m.Days < 0 {
		return fmt.Errorf("%w: days must not be negative", ErrInvalidMessage)
	}
	return nil
}

// SyncStocksMessage snapshots one boutique, or every boutique when BoutiqueID is empty.
type SyncStocksMessage struct {
	BoutiqueID string `json:"boutique_id,omitempty"`
}

func (m SyncStocksMessage) Type() string    { return TypeSyncStocks }
func (m SyncStocksMessage) Key() string     { return keyOrAll(m.BoutiqueID) }
func (m SyncStocksMessage) Validate() error { return nil }

func keyOrAll(boutiqueID string) string {
	if boutiqueID == "" {
		return "all"
	}
	return boutiqueID
}
