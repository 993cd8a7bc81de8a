package browser

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type namedEngine string

func (n namedEngine) Name() string { return string(n) }
func (n namedEngine) NewSession(context.Context) (Session, error) {
	return nil, errors.New("not implemented")
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func TestOpenBuildsEnginesInOrder(t *testing.T) {
	p, err := Open(context.Background(), []string{"firefox", "rod", "chromium"}, Options{Headless: true})
	require.NoError(t, err)
	defer p.Close()

	var names []string
	for _, e := range p.Engines() {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{"firefox", "rod", "chromium"}, names)
	// one shared playwright driver, nothing started yet
	assert.Len(t, p.closers, 1)
	assert.NoError(t, p.Close())
}

func TestOpenRejectsUnknownEngine(t *testing.T) {
	_, err := Open(context.Background(), []string{"chromium", "lynx"}, Options{})
	assert.ErrorContains(t, err, "lynx")

	_, err = Open(context.Background(), nil, Options{})
	assert.Error(t, err)
}

func TestProviderEnginesSubset(t *testing.T) {
	p := NewProvider(namedEngine("chromium"), namedEngine("firefox"), namedEngine("rod"))

	got := p.Engines("rod", "missing", "chromium")
	require.Len(t, got, 2)
	assert.Equal(t, "rod", got[0].Name())
	assert.Equal(t, "chromium", got[1].Name())

	assert.Len(t, p.Engines(), 3)
}

func TestProviderCloseJoinsErrors(t *testing.T) {
	var order []int
	p := NewProvider()
	p.closers = append(p.closers,
		closerFunc(func() error { order = append(order, 1); return errors.New("first") }),
		closerFunc(func() error { order = append(order, 2); return nil }),
	)

	err := p.Close()
	assert.ErrorContains(t, err, "first")
	assert.Equal(t, []int{2, 1}, order)
	assert.NoError(t, p.Close())
}
