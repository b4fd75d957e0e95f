// Package nodetree models the shader node tree handed over by the authoring
// editor: nodes with typed input and output sockets, per-socket default
// values and at most one incoming link per input. The tree is read-only
// input to the exporter; nothing in the export pipeline mutates it.
package nodetree
