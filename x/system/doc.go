/*
Package system implements the system service: the owner of every account
nobody else owns. It creates accounts for other programs, moves lamports
between wallets and hands the storage of an account over to a program.

Instruction data starts with a little endian u32 tag followed by the fixed
size arguments of the instruction.
*/
package system
