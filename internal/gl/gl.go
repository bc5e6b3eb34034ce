// SPDX-License-Identifier: Unlicense OR MIT

package gl

type (
	Enum     uint
	Bitfield uint
)

const (
	FALSE    = 0
	TRUE     = 1
	NO_ERROR = 0x0

	// Queries.
	QUERY_RESULT           = 0x8866
	QUERY_RESULT_AVAILABLE = 0x8867
	TIMESTAMP              = 0x8E28
	TIME_ELAPSED           = 0x88BF

	// ARB_sync.
	SYNC_GPU_COMMANDS_COMPLETE = 0x9117
	SYNC_FLUSH_COMMANDS_BIT    = 0x00000001
	ALREADY_SIGNALED           = 0x911A
	TIMEOUT_EXPIRED            = 0x911B
	CONDITION_SATISFIED        = 0x911C
	WAIT_FAILED                = 0x911D
	TIMEOUT_IGNORED            = 0xFFFFFFFFFFFFFFFF

	// KHR_debug.
	DEBUG_OUTPUT             = 0x92E0
	DEBUG_OUTPUT_SYNCHRONOUS = 0x8242

	DEBUG_SOURCE_API             = 0x8246
	DEBUG_SOURCE_WINDOW_SYSTEM   = 0x8247
	DEBUG_SOURCE_SHADER_COMPILER = 0x8248
	DEBUG_SOURCE_THIRD_PARTY     = 0x8249
	DEBUG_SOURCE_APPLICATION     = 0x824A
	DEBUG_SOURCE_OTHER           = 0x824B

	DEBUG_TYPE_ERROR               = 0x824C
	DEBUG_TYPE_DEPRECATED_BEHAVIOR = 0x824D
	DEBUG_TYPE_UNDEFINED_BEHAVIOR  = 0x824E
	DEBUG_TYPE_PORTABILITY         = 0x824F
	DEBUG_TYPE_PERFORMANCE         = 0x8250
	DEBUG_TYPE_OTHER               = 0x8251
	DEBUG_TYPE_MARKER              = 0x8268

	DEBUG_SEVERITY_HIGH         = 0x9146
	DEBUG_SEVERITY_MEDIUM       = 0x9147
	DEBUG_SEVERITY_LOW          = 0x9148
	DEBUG_SEVERITY_NOTIFICATION = 0x826B

	// Texture parameters.
	TEXTURE_2D         = 0x0DE1
	TEXTURE_MAG_FILTER = 0x2800
	TEXTURE_MIN_FILTER = 0x2801
	NEAREST            = 0x2600
	LINEAR             = 0x2601
)

// GLX constants.
const (
	GLX_VISUAL_ID   = 0x800B
	GLX_RENDER_TYPE = 0x8011
	GLX_RGBA_TYPE   = 0x8014

	// GLX_ARB_create_context.
	GLX_CONTEXT_MAJOR_VERSION_ARB = 0x2091
	GLX_CONTEXT_MINOR_VERSION_ARB = 0x2092
	GLX_CONTEXT_FLAGS_ARB         = 0x2094
	GLX_CONTEXT_PROFILE_MASK_ARB  = 0x9126

	GLX_CONTEXT_DEBUG_BIT_ARB              = 0x0001
	GLX_CONTEXT_FORWARD_COMPATIBLE_BIT_ARB = 0x0002

	GLX_CONTEXT_CORE_PROFILE_BIT_ARB          = 0x0001
	GLX_CONTEXT_COMPATIBILITY_PROFILE_BIT_ARB = 0x0002

	// GLX_ARB_create_context_no_error.
	GLX_CONTEXT_OPENGL_NO_ERROR_ARB = 0x31B3

	// Attribute list terminator.
	GLX_NONE = 0
)
