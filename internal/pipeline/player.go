package pipeline

// Player plays one audio file synchronously to completion
type Player interface {
	Play(path string) error
}
