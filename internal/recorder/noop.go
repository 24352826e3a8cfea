package recorder

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordPosition(_ *PositionEvent) error        { return nil }
func (n *NoopRecorder) RecordCommand(_ *CommandEvent) error          { return nil }
func (n *NoopRecorder) RecordModeTransition(_ *ModeTransition) error { return nil }
func (n *NoopRecorder) Close() error                                 { return nil }
