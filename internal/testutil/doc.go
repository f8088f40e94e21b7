// Package testutil contains fakes and builders shared by package tests:
// a scriptable camera, a scripted album provider, a recording delegate and a
// QR image generator. They are not intended for production usage.
package testutil
