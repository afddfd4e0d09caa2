package effects

// Effector processes one stereo frame.
type Effector interface {
	Process(l, r float32) (float32, float32)
	Reset()
}

// Chain applies a sequence of effects in order.
type Chain struct {
	effects []Effector
}

func NewChain(effects ...Effector) *Chain {
	return &Chain{effects: effects}
}

func (c *Chain) Process(l, r float32) (float32, float32) {
	for _, e := range c.effects {
		l, r = e.Process(l, r)
	}
	return l, r
}

func (c *Chain) Reset() {
	for _, e := range c.effects {
		e.Reset()
	}
}
