package jit

/*
typedef void (*calculon_invoke_fn)(void *frame);

static void calculon_invoke(void *fn, void *frame) {
	((calculon_invoke_fn)fn)(frame);
}
*/
import "C"

import "unsafe"

// invoke runs a native Invoke thunk on a frame of reals.
func invoke(fn, frame unsafe.Pointer) {
	C.calculon_invoke(fn, frame)
}
