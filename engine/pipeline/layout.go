package pipeline

import (
	"fmt"
	"sort"

	"github.com/cogentcore/webgpu/wgpu"
)

// mergeBindGroupLayouts merges the bind group layout descriptors reflected
// from two shader stages into one set suitable for a pipeline layout.
//
// For each group index present in either stage:
//   - Entries with the same binding number must have the same shape; their
//     Visibility flags are ORed together and the larger MinBindingSize wins.
//   - Entries unique to one stage are included with their original visibility.
//
// Parameters:
//   - a: bind group layout descriptors from the first stage
//   - b: bind group layout descriptors from the second stage
//
// Returns:
//   - map[int]wgpu.BindGroupLayoutDescriptor: the merged descriptors keyed by group index
//   - error: an *IncompatibleBindingError if the stages disagree on a binding's shape
func mergeBindGroupLayouts(a, b map[int]wgpu.BindGroupLayoutDescriptor) (map[int]wgpu.BindGroupLayoutDescriptor, error) {
	merged := make(map[int]wgpu.BindGroupLayoutDescriptor)

	groupIndices := make(map[int]bool)
	for g := range a {
		groupIndices[g] = true
	}
	for g := range b {
		groupIndices[g] = true
	}

	for g := range groupIndices {
		aDesc, hasA := a[g]
		bDesc, hasB := b[g]

		switch {
		case hasA && !hasB:
			merged[g] = aDesc
		case hasB && !hasA:
			merged[g] = bDesc
		default:
			entryMap := make(map[uint32]wgpu.BindGroupLayoutEntry)
			for _, e := range aDesc.Entries {
				entryMap[e.Binding] = e
			}
			for _, e := range bDesc.Entries {
				existing, ok := entryMap[e.Binding]
				if !ok {
					entryMap[e.Binding] = e
					continue
				}
				if reason := bindingShapeConflict(existing, e); reason != "" {
					return nil, &IncompatibleBindingError{Group: g, Binding: e.Binding, Reason: reason}
				}
				existing.Visibility |= e.Visibility
				if e.Buffer.MinBindingSize > existing.Buffer.MinBindingSize {
					existing.Buffer.MinBindingSize = e.Buffer.MinBindingSize
				}
				entryMap[e.Binding] = existing
			}

			entries := make([]wgpu.BindGroupLayoutEntry, 0, len(entryMap))
			for _, e := range entryMap {
				entries = append(entries, e)
			}
			// sort by binding for deterministic layout
			sort.Slice(entries, func(i, j int) bool {
				return entries[i].Binding < entries[j].Binding
			})

			merged[g] = wgpu.BindGroupLayoutDescriptor{
				Label:   aDesc.Label,
				Entries: entries,
			}
		}
	}

	return merged, nil
}

// bindingShapeConflict compares the resource shape of two layout entries for
// the same binding and returns a non-empty reason string when they disagree.
// Visibility and MinBindingSize are merge concerns, not shape.
func bindingShapeConflict(a, b wgpu.BindGroupLayoutEntry) string {
	if a.Buffer.Type != b.Buffer.Type {
		return fmt.Sprintf("buffer binding type %v vs %v", a.Buffer.Type, b.Buffer.Type)
	}
	if a.Sampler.Type != b.Sampler.Type {
		return fmt.Sprintf("sampler type %v vs %v", a.Sampler.Type, b.Sampler.Type)
	}
	if a.Texture.SampleType != b.Texture.SampleType ||
		a.Texture.ViewDimension != b.Texture.ViewDimension ||
		a.Texture.Multisampled != b.Texture.Multisampled {
		return "texture binding shape differs between stages"
	}
	if a.StorageTexture.Format != b.StorageTexture.Format ||
		a.StorageTexture.Access != b.StorageTexture.Access ||
		a.StorageTexture.ViewDimension != b.StorageTexture.ViewDimension {
		return "storage texture binding shape differs between stages"
	}
	return ""
}
