package mvi

// ActionSource identifies where an action entered the feature.
type ActionSource string

const (
	// SourceWish marks actions wrapped from an accepted wish.
	SourceWish ActionSource = "wish"
	// SourceBootstrap marks actions emitted by the bootstrapper.
	SourceBootstrap ActionSource = "bootstrap"
)

// Observer receives engine events for metrics or tracing.
// Methods are called from the fold loop and from forwarding goroutines, so
// implementations must be safe for concurrent use and must not block.
type Observer interface {
	ActionReceived(source ActionSource)
	EffectFolded()
	NewsPublished()
	EffectDropped()
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) ActionReceived(ActionSource) {}
func (NopObserver) EffectFolded()               {}
func (NopObserver) NewsPublished()              {}
func (NopObserver) EffectDropped()              {}
