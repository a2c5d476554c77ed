// Package skeleton builds the project skeleton: a size-bounded rendering of
// the repository directory tree, as indented text and as a node tree.
//
// The text form lists each directory as "name/" followed by its
// subdirectories and then its files, indented two spaces per level. A
// directory that did not fit the budget is rendered on a single line with
// the number of files it hides:
//
//	repo/
//	  big/ (+500 more files)
//	  small/
//	    a.py
//	    b.py
//	  README.md
package skeleton
