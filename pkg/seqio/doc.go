// Package seqio reads reference sequences from FASTA/FASTQ files and writes
// generated sequences as FASTA records.
package seqio
