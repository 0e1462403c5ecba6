package shader

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

var (
	// structDeclRegex matches struct declarations and captures the name and body.
	structDeclRegex = regexp.MustCompile(`struct\s+(\w+)\s*\{([^}]*)\}`)

	// locationAttrRegex matches @location(N) attributes on struct fields.
	locationAttrRegex = regexp.MustCompile(`@location\((\d+)\)`)

	// builtinAttrRegex matches @builtin(...) attributes on struct fields.
	builtinAttrRegex = regexp.MustCompile(`@builtin\(\w+\)`)

	// fieldDeclRegex matches a struct field: optional attributes, name, colon,
	// type. The type capture is greedy to handle array<T, N>.
	fieldDeclRegex = regexp.MustCompile(`(?:(?:@\w+\([^)]*\)\s*)*)*\s*(\w+)\s*:\s*(.+)`)

	// stage entry point regexes capture the function name following the stage attribute.
	vertexEntryRegex   = regexp.MustCompile(`(?s)@vertex\b.*?\bfn\s+(\w+)`)
	fragmentEntryRegex = regexp.MustCompile(`(?s)@fragment\b.*?\bfn\s+(\w+)`)
	computeEntryRegex  = regexp.MustCompile(`(?s)@compute\b.*?\bfn\s+(\w+)`)

	// workgroupSizeRegex captures 1-3 integer dimensions from @workgroup_size(x[, y[, z]]).
	workgroupSizeRegex = regexp.MustCompile(`@workgroup_size\(\s*(\d+)\s*(?:,\s*(\d+)\s*(?:,\s*(\d+)\s*)?)?\)`)

	// resourceDeclRegex captures group, binding, optional address space,
	// variable name, and type from declarations like
	// @group(0) @binding(1) var<uniform> camera: CameraUniform; or handle
	// declarations like @group(0) @binding(0) var grid: texture_2d<u32>;
	resourceDeclRegex = regexp.MustCompile(`@group\((\d+)\)\s*@binding\((\d+)\)\s*var(?:<([^>]*)>)?\s+(\w+)\s*:\s*([^;]+?)\s*;`)
)

// fieldDecl is a single field extracted from a WGSL struct.
type fieldDecl struct {
	name      string
	typeName  string
	location  int
	isBuiltin bool
}

// structDecl is a WGSL struct block extracted during parsing.
type structDecl struct {
	name   string
	fields []fieldDecl
}

// parseEntryPoint extracts the entry point function name for the given stage.
// Returns an empty string if the stage attribute does not appear in the source.
//
// Parameters:
//   - cleaned: WGSL source with comments already stripped
//   - shaderType: the stage whose entry point to find
//
// Returns:
//   - string: the entry point function name, or "" if not found
func parseEntryPoint(cleaned string, shaderType ShaderType) string {
	var re *regexp.Regexp
	switch shaderType {
	case ShaderTypeVertex:
		re = vertexEntryRegex
	case ShaderTypeFragment:
		re = fragmentEntryRegex
	case ShaderTypeCompute:
		re = computeEntryRegex
	default:
		return ""
	}
	if match := re.FindStringSubmatch(cleaned); match != nil {
		return match[1]
	}
	return ""
}

// parseWorkgroupSize extracts the @workgroup_size(x, y, z) dimensions.
// Omitted dimensions default to 1 per the WGSL specification, as does a
// missing annotation.
//
// Parameters:
//   - cleaned: WGSL source with comments already stripped
//
// Returns:
//   - [3]uint32: the workgroup size as [x, y, z]
func parseWorkgroupSize(cleaned string) [3]uint32 {
	result := [3]uint32{1, 1, 1}
	match := workgroupSizeRegex.FindStringSubmatch(cleaned)
	if match == nil {
		return result
	}
	for i := 0; i < 3; i++ {
		if match[i+1] == "" {
			continue
		}
		if v, err := strconv.ParseUint(match[i+1], 10, 32); err == nil {
			result[i] = uint32(v)
		}
	}
	return result
}

// parseVertexLayouts finds all pure vertex input structs (structs with
// @location fields and no @builtin fields) and converts each into a
// wgpu.VertexBufferLayout, in declaration order. Structs with unrecognized
// field types are skipped.
//
// Parameters:
//   - cleaned: WGSL source with comments already stripped
//
// Returns:
//   - []wgpu.VertexBufferLayout: one layout per vertex input struct
func parseVertexLayouts(cleaned string) []wgpu.VertexBufferLayout {
	var layouts []wgpu.VertexBufferLayout
	for _, sd := range parseStructDecls(cleaned) {
		if !isVertexInput(sd) {
			continue
		}
		if layout, ok := buildVertexLayout(sd); ok {
			layouts = append(layouts, layout)
		}
	}
	return layouts
}

// parseBindGroupLayouts extracts all @group/@binding resource declarations and
// returns them as layout descriptors keyed by group index, with entries sorted
// by binding index. The visibility flag is applied to every entry. Buffer
// entries get MinBindingSize from the bound type's WGSL layout when it can be
// resolved.
//
// Parameters:
//   - cleaned: WGSL source with comments already stripped
//   - visibility: the shader stage visibility flag to set on each entry
//
// Returns:
//   - map[int]wgpu.BindGroupLayoutDescriptor: layout descriptors keyed by group index
//   - map[int]map[int]string: variable names keyed by group and binding index
func parseBindGroupLayouts(cleaned string, visibility wgpu.ShaderStage) (map[int]wgpu.BindGroupLayoutDescriptor, map[int]map[int]string) {
	groups := make(map[int][]wgpu.BindGroupLayoutEntry)
	names := make(map[int]map[int]string)

	structSizes := computeStructSizes(parseStructDecls(cleaned))

	for _, match := range resourceDeclRegex.FindAllStringSubmatch(cleaned, -1) {
		group, _ := strconv.Atoi(match[1])
		binding, _ := strconv.Atoi(match[2])
		addressSpace := strings.TrimSpace(match[3])
		varName := strings.TrimSpace(match[4])
		typeName := strings.TrimSpace(match[5])

		entry := classifyResource(uint32(binding), visibility, addressSpace, typeName)
		if entry.Buffer.Type != wgpu.BufferBindingTypeUndefined {
			if layout, ok := resolveTypeLayout(typeName, structSizes); ok && layout.size > 0 {
				entry.Buffer.MinBindingSize = layout.size
			}
		}

		groups[group] = append(groups[group], entry)
		if names[group] == nil {
			names[group] = make(map[int]string)
		}
		names[group][binding] = varName
	}

	result := make(map[int]wgpu.BindGroupLayoutDescriptor, len(groups))
	for g, entries := range groups {
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].Binding < entries[j].Binding
		})
		result[g] = wgpu.BindGroupLayoutDescriptor{Entries: entries}
	}
	return result, names
}

// parseStructDecls finds all struct blocks in the cleaned source and parses
// their fields along with @location and @builtin attributes.
func parseStructDecls(cleaned string) []structDecl {
	matches := structDeclRegex.FindAllStringSubmatch(cleaned, -1)
	decls := make([]structDecl, 0, len(matches))
	for _, match := range matches {
		decls = append(decls, structDecl{
			name:   match[1],
			fields: parseFieldDecls(match[2]),
		})
	}
	return decls
}

// parseFieldDecls parses the body of a struct block into individual fields.
// Commas nested inside angle brackets (array<T, N>) are not field separators.
func parseFieldDecls(body string) []fieldDecl {
	entries := splitTopLevel(body, ',')
	fields := make([]fieldDecl, 0, len(entries))

	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		field := fieldDecl{location: -1}
		if builtinAttrRegex.MatchString(entry) {
			field.isBuiltin = true
		}
		if m := locationAttrRegex.FindStringSubmatch(entry); m != nil {
			if loc, err := strconv.Atoi(m[1]); err == nil {
				field.location = loc
			}
		}
		m := fieldDeclRegex.FindStringSubmatch(entry)
		if m == nil {
			continue
		}
		field.name = m[1]
		field.typeName = strings.TrimSpace(m[2])
		fields = append(fields, field)
	}
	return fields
}

// isVertexInput reports whether a struct is a pure vertex input: at least one
// @location field and zero @builtin fields. Vertex output structs mix
// @location with @builtin(position) and are excluded.
func isVertexInput(sd structDecl) bool {
	hasLocation := false
	for _, f := range sd.fields {
		if f.isBuiltin {
			return false
		}
		if f.location >= 0 {
			hasLocation = true
		}
	}
	return hasLocation
}

// buildVertexLayout converts a vertex input struct into a
// wgpu.VertexBufferLayout with sequential byte offsets. Returns false if any
// field type cannot be mapped to a vertex format.
func buildVertexLayout(sd structDecl) (wgpu.VertexBufferLayout, bool) {
	attrs := make([]wgpu.VertexAttribute, 0, len(sd.fields))
	var offset uint64

	for _, f := range sd.fields {
		info, ok := wgslVertexFormatMap[f.typeName]
		if !ok {
			return wgpu.VertexBufferLayout{}, false
		}
		attrs = append(attrs, wgpu.VertexAttribute{
			Format:         info.format,
			Offset:         offset,
			ShaderLocation: uint32(f.location),
		})
		offset += info.size
	}

	return wgpu.VertexBufferLayout{
		ArrayStride: offset,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes:  attrs,
	}, true
}

// splitTopLevel splits s at separators that are not nested inside angle
// brackets, so array<T, N> stays intact when splitting struct bodies.
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<':
			depth++
		case '>':
			if depth > 0 {
				depth--
			}
		case sep:
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}

// stripComments removes single-line (//) and block (/* */) comments from WGSL
// source. Block comments may be nested per the WGSL specification.
func stripComments(source string) string {
	var sb strings.Builder
	sb.Grow(len(source))
	depth := 0
	i := 0
	for i < len(source) {
		if i+1 < len(source) {
			switch {
			case source[i] == '/' && source[i+1] == '*':
				depth++
				i += 2
				continue
			case source[i] == '*' && source[i+1] == '/' && depth > 0:
				depth--
				i += 2
				continue
			case depth == 0 && source[i] == '/' && source[i+1] == '/':
				for i < len(source) && source[i] != '\n' {
					i++
				}
				continue
			}
		}
		if depth == 0 {
			sb.WriteByte(source[i])
		}
		i++
	}
	return sb.String()
}
