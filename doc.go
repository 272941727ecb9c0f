/*
Package swapvault defines the types shared by the escrow program, the
services it calls and the host runtime executing them: account views with
their borrow discipline, the keyless signer capability of program derived
addresses, the rent model and the program invocation contract.

Loggers travel through context.Context. There are two functions for every
value kept in a context:

  WithXYZ(context.Context, T) context.Context
  GetXYZ(context.Context) T
*/
package swapvault
