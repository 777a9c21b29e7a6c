/*
Package decomp turns structured intermediate code back into C-like text.

Fixture text ->
	fixture.Decode ->
Program and numbered block graphs (ir, cfg) ->
	late passes: bypass calls, simplify, strip sizes, insert casts (simp) ->
Rewritten statements ->
	codegen ->
Lines of pseudo-C (format)

*/
package decomp
