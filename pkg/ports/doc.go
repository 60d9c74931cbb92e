/*
Package ports defines the driven ports (interfaces) around the Conduit engine.

# Key Interfaces

  - ContractLoader: retrieves contract sources (e.g. from Loam or memory).
  - ReportStore: persists analysis reports (memory or Redis).
  - DistributedLocker: serialises analyses of one contract across replicas.

Adapters are checked against the reusable suites in this package
(RunReportStoreContract) and in ports/tests (ContractLoaderContractTest).
*/
package ports
