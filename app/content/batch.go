package content

import (
	"encoding/json"
	"time"
)

type BatchMetadata struct {
	CollectionTime   time.Time `json:"collection_time"`
	TotalItems       int       `json:"total_items"`
	ActiveSources    []Source  `json:"active_sources"`
	DisabledSources  []Source  `json:"disabled_sources"`
	FailedSources    []Source  `json:"failed_sources"`
	SimulatedSources []Source  `json:"simulated_sources"`
}

// IngestionBatch is the result of one collection run across all sources.
type IngestionBatch struct {
	Items    map[Source][]Content
	Metadata BatchMetadata
}

func NewIngestionBatch(collectionTime time.Time) IngestionBatch {
	return IngestionBatch{
		Items: make(map[Source][]Content),
		Metadata: BatchMetadata{
			CollectionTime:   collectionTime.UTC(),
			ActiveSources:    []Source{},
			DisabledSources:  []Source{},
			FailedSources:    []Source{},
			SimulatedSources: []Source{},
		},
	}
}

func (b *IngestionBatch) Get(source Source) []Content {
	return b.Items[source]
}

func (b *IngestionBatch) Add(source Source, items []Content) {
	if b.Items == nil {
		b.Items = make(map[Source][]Content)
	}
	b.Items[source] = append(b.Items[source], items...)
	b.Metadata.TotalItems += len(items)
}

func (b IngestionBatch) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(Sources())+1)
	for _, source := range Sources() {
		items := b.Items[source]
		if items == nil {
			items = []Content{}
		}
		out[string(source)] = items
	}
	out["metadata"] = b.Metadata

	return json.Marshal(out)
}

// SaveSummary reports how many new records a run persisted.
type SaveSummary struct {
	Counts    map[Source]int
	Total     int
	Timestamp time.Time
}

func NewSaveSummary() SaveSummary {
	counts := make(map[Source]int, len(Sources()))
	for _, source := range Sources() {
		counts[source] = 0
	}
	return SaveSummary{Counts: counts}
}

func (s SaveSummary) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(Sources())+2)
	for _, source := range Sources() {
		out[string(source)] = s.Counts[source]
	}
	out["total"] = s.Total
	out["timestamp"] = s.Timestamp

	return json.Marshal(out)
}
