/*
Package escrow implements a two-party token escrow program.

A maker offers an amount of one token (mint A) for a fixed amount of another
(mint B). Make creates an escrow record at an address derived from the maker
and a maker chosen seed, and moves the offered tokens into a vault: the
associated token account of the escrow record. Nobody holds a key for the
escrow address, only this program can sign for it.

Take fulfills the offer in one step: the vault content goes to the taker, the
requested amount goes from the taker to the maker, and both the vault and the
escrow record are closed. The vault rent goes back to the maker, the escrow
rent to the taker. If any of this fails, nothing happens.
*/
package escrow
