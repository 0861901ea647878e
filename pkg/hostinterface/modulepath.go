package hostinterface

/*
#cgo windows LDFLAGS: -lpsapi
#cgo linux LDFLAGS: -ldl

#ifdef _WIN32
#define WIN32_LEAN_AND_MEAN
#include <windows.h>
#include <stdlib.h>

// vc_module_path returns the UTF-8 path of this DLL, or NULL.
static char* vc_module_path(void) {
    HMODULE self = NULL;
    if (!GetModuleHandleExW(GET_MODULE_HANDLE_EX_FLAG_FROM_ADDRESS |
                            GET_MODULE_HANDLE_EX_FLAG_UNCHANGED_REFCOUNT,
                            (LPCWSTR)(void*)vc_module_path, &self)) {
        return NULL;
    }

    DWORD cap = MAX_PATH;
    wchar_t* wide = NULL;
    for (;;) {
        wchar_t* grown = (wchar_t*)realloc(wide, cap * sizeof(wchar_t));
        if (grown == NULL) {
            free(wide);
            return NULL;
        }
        wide = grown;
        DWORD n = GetModuleFileNameW(self, wide, cap);
        if (n == 0) {
            free(wide);
            return NULL;
        }
        if (n < cap) {
            break;
        }
        cap *= 2;
    }

    int len = WideCharToMultiByte(CP_UTF8, 0, wide, -1, NULL, 0, NULL, NULL);
    char* out = len > 0 ? (char*)malloc(len) : NULL;
    if (out != NULL) {
        WideCharToMultiByte(CP_UTF8, 0, wide, -1, out, len, NULL, NULL);
    }
    free(wide);
    return out;
}

#else
#define _GNU_SOURCE
#include <dlfcn.h>
#include <stdlib.h>
#include <string.h>

// vc_module_path returns the path of this shared object, or NULL.
static char* vc_module_path(void) {
    Dl_info info;
    if (dladdr((void*)vc_module_path, &info) == 0 || info.dli_fname == NULL) {
        return NULL;
    }
    return strdup(info.dli_fname);
}
#endif
*/
import "C"

import (
	"path/filepath"
	"unsafe"
)

// GetModulePath returns the absolute path of the shared library the host
// loaded, or "" when the platform cannot tell.
func GetModulePath() string {
	p := C.vc_module_path()
	if p == nil {
		return ""
	}
	defer C.free(unsafe.Pointer(p))

	path := C.GoString(p)
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
