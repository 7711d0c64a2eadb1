// Package decl holds the declaration model of an API registry.
//
// Two layers live here. The Raw* types carry a registry declaration exactly as
// the front end read it: ordered attributes, leading text and child elements
// with their tails. The Struct, Command, Member and Param types are the
// normalized model produced by ingestion in package compiler.
//
// Both layers are passive. Nothing in this package validates or derives
// anything; decl imports nothing internal.
package decl
