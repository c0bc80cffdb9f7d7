package execution

const (
	// SpecCommand is the compiler sub command running specs
	SpecCommand = "spec"
	// ReportFlag tells the compiler where to write the JUnit report
	ReportFlag = "--junit_output"
	// ReportFileName is the file the compiler writes inside the report dir
	ReportFileName = "output.xml"

	tempDirPattern = "crystal-spec-"
	reportDirName  = "junit"
)
