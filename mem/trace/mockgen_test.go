package trace

//go:generate mockgen -destination "mock_datarecording_test.go" -package $GOPACKAGE -write_package_comment=false github.com/sarchlab/cachesim/datarecording DataRecorder
