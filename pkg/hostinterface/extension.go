package hostinterface

// #include <stdlib.h>
import "C"

import "unsafe"

// called by the host to get the version of the extension
//
//export VCExtensionVersion
func VCExtensionVersion(output *C.char, outputsize C.size_t) {
	version, _, _ := Config.snapshot()
	replyToSyncCall(version, output, outputsize)
}

// called by the host in the form "vehiclectl" callExtension "command|arg|arg"
//
//export VCExtension
func VCExtension(output *C.char, outputsize C.size_t, input *C.char) {
	replyToSyncCall(CallString(C.GoString(input)), output, outputsize)
}

// called by the host in the form "vehiclectl" callExtension ["command", [args]]
//
//export VCExtensionArgs
func VCExtensionArgs(output *C.char, outputsize C.size_t, input *C.char, argv **C.char, argc C.int) {
	command := C.GoString(input)
	replyToSyncCall(Call(command, parseArgsFromC(argv, argc)), output, outputsize)
}

// parseArgsFromC copies the host's argv into Go strings.
func parseArgsFromC(argv **C.char, argc C.int) []string {
	if argv == nil || argc <= 0 {
		return nil
	}
	ptrs := unsafe.Slice(argv, int(argc))
	args := make([]string, len(ptrs))
	for i, p := range ptrs {
		args[i] = C.GoString(p)
	}
	return args
}

// replyToSyncCall copies response into the host's buffer. Replies that do
// not fit are cut short but always NUL-terminated.
func replyToSyncCall(response string, output *C.char, outputsize C.size_t) {
	if output == nil || outputsize == 0 {
		return
	}
	buf := unsafe.Slice((*byte)(unsafe.Pointer(output)), int(outputsize))
	n := copy(buf[:len(buf)-1], response)
	buf[n] = 0
}
