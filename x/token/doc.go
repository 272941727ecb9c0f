/*
Package token implements the token service that keeps balances in token
accounts. Two variants of the service coexist and are served by the same
Program type:

  - the legacy service, with fixed 82 byte mints and 165 byte accounts;
  - the extensible service, whose mints and accounts share a 165 byte header
    region followed by a one byte type tag (0x01 mint, 0x02 account). An
    extensible mint without extensions keeps the legacy 82 byte layout.

The authority of a token account is the wallet or program derived address
stored in the account, not the program owning the account storage.
*/
package token
