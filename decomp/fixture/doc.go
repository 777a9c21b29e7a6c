/*
Package fixture loads a program with its control flow graphs from YAML.

	settings:
	  no_remove_labels: true
	globals:
	  - {name: counter, type: i32, init: "0"}
	procs:
	  - name: main
	    addr: 0x1000
	    ret: i32
	    params: [{name: argc, type: i32}]
	    locals: [{name: x, type: i32}]
	    blocks:
	      - name: entry
	        type: twoway
	        succs: [then, join]
	        struct: cond
	        cond: ifthen
	        cond_follow: join
	        stmts:
	          - "x := argc"
	          - {kind: branch, cond: "x < 10"}
	      - name: then
	        type: oneway
	        succs: [join]
	        stmts: ["x := x + 1"]
	      - name: join
	        type: ret
	        stmts:
	          - {kind: return, returns: ["r24 := x"]}

Expressions use the IR notation of package parse.
Names of parameters and globals resolve to those, any other name is a local.
Types are type tags: i32, u8, pc, f64, i32[4], p(i32)v.

Statements are numbered in file order starting from 1, so {n} references
refer to the n-th statement of the procedure.
A scalar statement "lhs := rhs" is an assignment, others set kind to one of
assign, bool, branch, case, goto, call, return, implicit.
*/
package fixture
