// Package textutil turns source file names into tokens that are safe to use
// as staging directory and staged file names.
package textutil
