// Package procscan discovers sibling processes (other running copies of the
// same executable) and classifies the relationship between the caller and any
// sibling found.
//
// Classification follows enumeration order: the first sibling owned by the
// caller's own user wins unconditionally and stops the scan, while a
// same-session sibling owned by a different user is recorded provisionally
// and can be superseded by a same-owner match discovered later. When both
// kinds of sibling exist the final result therefore depends on the order the
// operating system enumerates processes in. That order dependence is a known
// property of the arbitration scheme, kept deliberately; see the scanner
// tests for the exact precedence matrix.
package procscan
