// classpass.go implements Pass B, class and inheritance resolution.
// Grounded on original_source/analysis/sym_ClassDiscovery.cpp: a child's member-variable
// layout is computed as the parent's layout followed by the child's own members (offsets
// never renumbered), and the vtable is built by copying the parent's slots and substituting
// overrides in place, appending new slots for methods the parent never declared. Cycle
// detection follows the same file's "currently resolving" path-set approach rather than a
// simple visited-set, so A -> B -> A is caught without also rejecting the legitimate
// multiple-paths-to-the-same-ancestor diamond some class graphs can otherwise trigger.
package ir

import "bcplfe/src/diag"

// ResolveClasses resolves every class's inheritance chain, computing member layouts and
// vtables. It is pass B of the four-pass pipeline.
func ResolveClasses(pm *ProgramMetrics, bag *diag.Bag) {
	resolving := make(map[string]bool)
	for _, name := range pm.Classes.Names() {
		resolveClass(name, pm, bag, resolving)
	}
}

func resolveClass(name string, pm *ProgramMetrics, bag *diag.Bag, resolving map[string]bool) {
	entry, ok := pm.Classes.Get(name)
	if !ok || entry.Resolved {
		return
	}
	if resolving[name] {
		bag.Errorf(diag.Semantic, 0, 0, "inheritance cycle detected involving class %q", name)
		entry.Resolved = true // Break the cycle: treat as if it had no parent.
		finalizeClass(entry, nil)
		return
	}
	resolving[name] = true
	defer delete(resolving, name)

	var parent *ClassTableEntry
	if entry.ParentName != "" {
		p, ok := pm.Classes.Get(entry.ParentName)
		if !ok {
			bag.Errorf(diag.Semantic, 0, 0, "class %q extends undeclared class %q", entry.Name, entry.ParentName)
		} else {
			resolveClass(p.Name, pm, bag, resolving)
			parent = p
		}
	}
	if entry.Resolved {
		return // Already finalized without a parent when a cycle through it was broken.
	}
	finalizeClass(entry, parent)
}

// finalizeClass lays out entry's member variables after parent's and builds its vtable
// from parent's plus entry's own methods.
func finalizeClass(entry, parent *ClassTableEntry) {
	ownMembers := entry.MemberVariables
	var offset int
	var merged []MemberVariable
	if parent != nil {
		merged = append(merged, parent.MemberVariables...)
		offset = parent.InstanceSize
	}
	for _, m := range ownMembers {
		m.Offset = offset
		offset += m.Type.ElementSize()
		merged = append(merged, m)
	}
	entry.MemberVariables = merged
	entry.InstanceSize = offset

	entry.SimpleToMethod = make(map[string]*ClassMethodInfo)
	if parent != nil {
		entry.Vtable = append([]*ClassMethodInfo(nil), parent.Vtable...)
		for k, v := range parent.SimpleToMethod {
			entry.SimpleToMethod[k] = v
		}
	}

	for _, qualified := range entry.MethodOrder {
		mi := entry.MemberMethods[qualified]
		if existing, overrides := entry.SimpleToMethod[mi.SimpleName]; overrides {
			mi.VtableSlot = existing.VtableSlot
			entry.Vtable[mi.VtableSlot] = mi
		} else {
			mi.VtableSlot = len(entry.Vtable)
			entry.Vtable = append(entry.Vtable, mi)
		}
		entry.SimpleToMethod[mi.SimpleName] = mi
	}

	// Copy forward any parent method this class neither overrides nor re-declares, under a
	// mangled qualified name, so the flat MemberMethods map contains every method reachable
	// through this class.
	if parent != nil {
		own := make(map[string]bool, len(entry.MethodOrder))
		for _, qualified := range entry.MethodOrder {
			own[entry.MemberMethods[qualified].SimpleName] = true
		}
		for simple, mi := range parent.SimpleToMethod {
			if own[simple] {
				continue
			}
			mangled := entry.Name + "::" + simple
			copied := *mi
			copied.QualifiedName = mangled
			copied.OwnerClass = entry.Name
			entry.MemberMethods[mangled] = &copied
			entry.SimpleToMethod[simple] = &copied
		}
	}

	entry.Resolved = true
}
