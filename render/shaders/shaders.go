package shaders

import (
	_ "embed"
)

//go:embed matcap.wgsl
var MatcapWGSL string

//go:embed text.wgsl
var TextWGSL string
