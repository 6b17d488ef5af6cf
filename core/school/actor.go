package school

// Actor identifies who carries out an operation; loggers attach it to the reports they send.
type Actor struct {
	ID    string
	Name  string
	Email string
}

func (a Actor) IsZero() bool {
	return a == Actor{}
}
