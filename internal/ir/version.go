package ir

// Version constants for the IR document and the compiler.
const (
	// IRVersion is the IR schema version recorded with every build.
	IRVersion = "1"

	// CompilerVersion is the vkir compiler version.
	CompilerVersion = "0.1.0"
)
