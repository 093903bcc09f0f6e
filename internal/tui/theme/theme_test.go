package theme

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrent_DefaultsToCatppuccinMocha(t *testing.T) {
	th := Current()
	require.NotNil(t, th)
	assert.Equal(t, "catppuccin-mocha", th.Name)
	assert.Equal(t, "#cba6f7", th.Primary)
	assert.Same(t, th.S(), th.S(), "styles are built once")
}

func TestSet(t *testing.T) {
	orig := Current()
	t.Cleanup(func() { Set(orig) })

	custom := &Theme{Name: "mono", Primary: "#ffffff"}
	Set(custom)
	assert.Same(t, custom, Current())
}

func TestHexRoundTrip(t *testing.T) {
	r, g, b := ParseHexColor("#cba6f7")
	assert.Equal(t, "#cba6f7", FormatHexColor(r, g, b))

	r, g, b = ParseHexColor("nope")
	assert.Equal(t, [3]uint8{0, 0, 0}, [3]uint8{r, g, b})
}

func TestGradient(t *testing.T) {
	assert.Nil(t, Gradient("#000000", "#ffffff", 0))
	assert.Equal(t, []string{"#000000"}, Gradient("#000000", "#ffffff", 1))

	g := Gradient("#000000", "#ffffff", 3)
	require.Len(t, g, 3)
	assert.Equal(t, "#000000", g[0])
	assert.Equal(t, "#7f7f7f", g[1])
	assert.Equal(t, "#ffffff", g[2])

	assert.Equal(t, "#ffffff", InterpolateColor("#000000", "#ffffff", 2), "pos is clamped")
}

func TestApplyGradient(t *testing.T) {
	out := ApplyGradient("a b", "#000000", "#ffffff")
	assert.Contains(t, out, "a")
	assert.Contains(t, out, " ")
	assert.Contains(t, out, "b")
	assert.Empty(t, ApplyGradient("", "#000000", "#ffffff"))
}
