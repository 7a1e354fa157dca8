/*
Package kmer implements the 2-bit nucleotide codec and the rolling k-mer
hash used by the mpg Markov models.

A k-mer w0 w1 ... w(k-1) over a four symbol alphabet is packed into a Hash as
the sum of code(wi) * 4^(k-1-i), so the most recent symbol always occupies the
two lowest bits. Every string of length k maps to a unique integer in
[0, 4^k) and back again, which lets a model index its contexts directly.
*/
package kmer
