package types

// ResourceState is the per-resource synchronization state.
type ResourceState string

const (
	ResourceUninitialized ResourceState = "uninitialized"
	ResourceLoading       ResourceState = "loading"
	ResourceLive          ResourceState = "live"
	ResourceDegraded      ResourceState = "degraded"
	ResourceError         ResourceState = "error"
)

// ResourceKind identifies one of the two server-side resources kept in sync.
type ResourceKind string

const (
	ResourceTicker     ResourceKind = "ticker"
	ResourceDeployment ResourceKind = "deployment"
)

// UpdateSource identifies the channel an update arrived on.
type UpdateSource string

const (
	SourceInitial UpdateSource = "initial"
	SourcePoll    UpdateSource = "poll"
	SourcePush    UpdateSource = "push"
)

// Placeholder is a display string shown in place of a value.
// The four placeholders are distinct and must never be conflated.
type Placeholder string

const (
	PlaceholderLoading        Placeholder = "Loading…"
	PlaceholderNotConnected   Placeholder = "Not Connected"
	PlaceholderConnectionLost Placeholder = "Connection Lost"
	PlaceholderError          Placeholder = "Error"
)

// DisplayValue is what the view renders for a field: either a real value or a placeholder.
type DisplayValue struct {
	Text        string `json:"text"`
	Placeholder bool   `json:"placeholder"`
}

// Value creates a DisplayValue carrying real data.
func Value(text string) DisplayValue {
	return DisplayValue{Text: text, Placeholder: false}
}

// ShowPlaceholder creates a DisplayValue carrying a placeholder.
func ShowPlaceholder(p Placeholder) DisplayValue {
	return DisplayValue{Text: string(p), Placeholder: true}
}

// Is reports whether the display currently shows the given placeholder.
func (d DisplayValue) Is(p Placeholder) bool {
	return d.Placeholder && d.Text == string(p)
}

// String implements fmt.Stringer.
func (d DisplayValue) String() string {
	return d.Text
}
