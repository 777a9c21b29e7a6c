package decomp

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slowlang/decomp/decomp/conf"
)

func TestDecompileLoop(t *testing.T) {
	res, err := DecompileFile(context.Background(), "testdata/loop.yaml", nil)
	require.NoError(t, err)

	assert.Equal(t, `int loop();

/** address: 0x3000 */
int loop()
{
    t = i * 2;
    while (i < 10) {
        i++;
        t = i * 2;
    }
    return i;
}

`, string(res.Text))

	assert.Zero(t, res.Bypassed)
}

func TestDecompileCalls(t *testing.T) {
	res, err := DecompileFile(context.Background(), "testdata/calls.yaml", nil)
	require.NoError(t, err)

	text := string(res.Text)

	assert.Contains(t, text, "int main();\nint inc(int n);\n")
	assert.Contains(t, text, "int inc(int n)\n{\n    return n + 1;\n}\n")
	assert.Contains(t, text, "    int x;\n\n    r8 = 5;\n    r24 = inc(r8);\n    x = r8 + 1;\n    return x + 5;\n}\n")

	assert.Less(t, strings.Index(text, "int main()\n"), strings.Index(text, "int inc(int n)\n"))

	assert.Equal(t, 1, res.Bypassed)
	assert.Empty(t, res.Warnings)
}

func TestDecompileSettings(t *testing.T) {
	const doc = `
settings:
  no_remove_labels: true
procs:
  - name: store
    addr: 0x100
    blocks:
      - name: a
        type: fall
        addr: 0x100
        succs: [b]
        stmts: ["m[r28 + (2 + 2)] := 7"]
      - name: b
        type: ret
        addr: 0x104
        stmts:
          - {kind: return, returns: ["r24 := 0"]}
`

	res, err := Decompile(context.Background(), "store.yaml", []byte(doc), nil)
	require.NoError(t, err)

	assert.Contains(t, string(res.Text), "    *(r28 + 4) = 7;\n")
	assert.Regexp(t, `(?m)^L\d+:$`, string(res.Text))

	res, err = Decompile(context.Background(), "store.yaml", []byte(doc), &conf.Settings{NoDecompile: true})
	require.NoError(t, err)

	assert.Contains(t, string(res.Text), "    MEMASSIGN(r28 + 4, 7);\n")
	assert.Regexp(t, `(?m)^L\d+:$`, string(res.Text))
}

func TestDecompileErrors(t *testing.T) {
	_, err := DecompileFile(context.Background(), "testdata/missing.yaml", nil)
	assert.Error(t, err)

	_, err = Decompile(context.Background(), "bad.yaml", []byte("procs: [{name: f, blocks: [{name: a, type: nope}]}]"), nil)
	assert.Error(t, err)
}

func TestRenderExp(t *testing.T) {
	ctx := context.Background()

	for _, tc := range []struct {
		in  string
		out string
		s   *conf.Settings
	}{
		{"m[r28 + 4] + (2 + 3)", "*(r28 + 4) + 5", nil},
		{"m[r28 + 4] + (2 + 3)", "MEMOF(r28 + 4) + 5", &conf.Settings{NoDecompile: true}},
		{"x + 0", "x", nil},
		{"(a + 3) - 1", "a + 2", nil},
		{"r8 << 2", "r8 * 4", nil},
		{"0xffffffff + 2", "1", &conf.Settings{WordBits: 32}},
	} {
		s, err := RenderExp(ctx, tc.in, tc.s)
		if assert.NoError(t, err, tc.in) {
			assert.Equal(t, tc.out, s, tc.in)
		}
	}

	_, err := RenderExp(ctx, "a +", nil)
	assert.Error(t, err)
}
