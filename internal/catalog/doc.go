// Package catalog reads book records from a header-less CSV export.
//
// A source is read in two independent passes: CountRows sizes progress
// reporting, then Open streams typed records. The file can change between
// passes; callers compare the two counts and report a mismatch.
//
// Row layout, eleven fields:
//
//	id,title,author,publisher,extension,filesize,language,year,pages,isbn,ipfs_cid
package catalog
