// Package duality resolves Hope/Fear duality rolls and single-die
// adversary rolls.
//
// A duality roll adds a Hope die and a Fear die, optionally followed by a
// keep-highest group built from the cancelled advantage/disadvantage pool
// and a flat modifier. The first two dice rolled are always the Hope and
// Fear dice; the pool group only contributes its single highest die.
package duality
