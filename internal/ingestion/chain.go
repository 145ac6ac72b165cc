package ingestion

import (
	"context"
	"errors"
	"io"
)

// Opener lazily opens a Source.
type Opener func() (Source, error)

// Chain reads several sources one after another. Each source is opened when
// the previous one is exhausted and closed as soon as it reaches io.EOF.
type Chain struct {
	openers []Opener
	next    int
	current Source
}

func NewChain(openers ...Opener) *Chain {
	return &Chain{openers: openers}
}

func (c *Chain) Next(ctx context.Context) (DocumentSpec, error) {
	for {
		if c.current == nil {
			if c.next >= len(c.openers) {
				return DocumentSpec{}, io.EOF
			}
			src, err := c.openers[c.next]()
			c.next++
			if err != nil {
				return DocumentSpec{}, err
			}
			c.current = src
		}
		doc, err := c.current.Next(ctx)
		if errors.Is(err, io.EOF) {
			if err := c.current.Close(); err != nil {
				return DocumentSpec{}, err
			}
			c.current = nil
			continue
		}
		return doc, err
	}
}

// Input reports which source, counting from 0, produced the last document.
// Positions restart at every input.
func (c *Chain) Input() int {
	return c.next - 1
}

func (c *Chain) Close() error {
	if c.current == nil {
		return nil
	}
	err := c.current.Close()
	c.current = nil
	return err
}
