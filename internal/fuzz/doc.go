// Package fuzztests holds fuzz harnesses for the front end and the closure
// elaboration pipeline. They feed arbitrary bytes through a FileSet and
// check that nothing panics, hangs or breaks span invariants.
package fuzztests
