// Package sx126x is an asynchronous-flavored driver core for the Semtech
// SX126x family of sub-GHz LoRa transceivers (SX1261/SX1262).
//
// It owns the SPI command protocol, the radio operating-mode state machine,
// and the LoRa physical-layer configuration/transceive path. A LoRaWAN MAC
// (or any other caller) drives the radio through the PhyRxTx and Timer
// adapters; this package does not implement a MAC itself.
package sx126x
