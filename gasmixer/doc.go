// Package gasmixer drives a two-channel Alicat gas mix controller over a
// serial line.
//
// The rig's mixer blends nitrogen (MFC 1) with an oxygen-bearing source gas
// (MFC 2, not necessarily pure O2). The protocol is ASCII with carriage
// return line endings; every command is prefixed with the controller's
// device ID and every response echoes it back:
//
//	-> A MXRM 3\r
//	<- A 3\r
//
// Mix fractions travel as parts-per-billion integers. The controller
// requires the two channel fractions to sum to exactly one billion, so the
// complementary channel is derived by subtraction rather than rounded
// independently.
package gasmixer
