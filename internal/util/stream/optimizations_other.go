//go:build !linux

package stream

var ReadOptimizations []Optimization
